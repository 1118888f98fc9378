// Package auth provides authentication and authorisation for the school site API.
//
// It implements a 2-role model (editor → admin) with:
//   - Argon2id password hashing, with bcrypt hashes accepted for configured accounts
//   - Stateless HS256 session tokens issued and verified by a Gate
//   - Static role-permission mapping (compile-time, no database lookup)
//
// Accounts are seeded from configuration on startup and are never
// overwritten once they exist, so password changes made through the API
// persist across restarts.
package auth
