// Package normalize converts provider-native call and message records into
// commlog.LogEntry values.
//
// Records arrive as raw JSON in heterogeneous shapes: nested voice-agent call
// objects (customer.number, createdAt) and flat telephony records (from/to,
// date_sent in RFC1123Z). Missing optional fields get explicit sentinels;
// only a missing id or counterparty number is an error.
package normalize
