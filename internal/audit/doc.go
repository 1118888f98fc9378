// Package audit records who changed what: content mutations, sign-ins,
// sign-outs, password changes and uploads, stored in the audit_logs table.
package audit
