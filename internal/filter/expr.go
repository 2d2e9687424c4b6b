package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/commlog/internal/commlog"
)

// ByExpr compiles a boolean CEL expression evaluated per entry. Variables:
//
//	id, kind, direction, counterparty, own_number, status, body, carrier (string)
//	ts_ms, now_ms (int, unix millis)
//	duration (double, seconds)
//
// Evaluation errors and non-boolean results reject the entry.
func ByExpr(expr string) (Predicate, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return func(commlog.LogEntry) bool { return true }, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("direction", cel.StringType),
		cel.Variable("counterparty", cel.StringType),
		cel.Variable("own_number", cel.StringType),
		cel.Variable("status", cel.StringType),
		cel.Variable("body", cel.StringType),
		cel.Variable("carrier", cel.StringType),
		cel.Variable("ts_ms", cel.IntType),
		cel.Variable("duration", cel.DoubleType),
		// Current time in ms for relative windows
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return nil, fmt.Errorf("%w: %v", commlog.ErrInvalidFilter, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("%w: expression must be boolean, got %s", commlog.ErrInvalidFilter, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", commlog.ErrInvalidFilter, err)
	}
	return func(e commlog.LogEntry) bool {
		out, _, err := prog.Eval(activation(e))
		if err != nil {
			return false
		}
		b, ok := out.Value().(bool)
		return ok && b
	}, nil
}

func activation(e commlog.LogEntry) map[string]any {
	vars := map[string]any{
		"id":           e.ID,
		"kind":         string(e.Kind),
		"direction":    string(e.Direction),
		"counterparty": e.CounterpartyNumber,
		"own_number":   e.OwnNumber,
		"status":       "",
		"body":         "",
		"carrier":      commlog.UnknownCarrier,
		"ts_ms":        e.Timestamp.UnixMilli(),
		"duration":     0.0,
		"now_ms":       time.Now().UnixMilli(),
	}
	if e.Timestamp.IsZero() {
		vars["ts_ms"] = int64(0)
	}
	if c := e.Call; c != nil {
		vars["status"] = c.Status
		vars["carrier"] = c.Carrier
		vars["duration"] = c.DurationSeconds
	}
	if m := e.Message; m != nil {
		vars["status"] = m.Status
		vars["carrier"] = m.Carrier
		vars["body"] = m.Body
	}
	return vars
}
