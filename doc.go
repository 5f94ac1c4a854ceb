// Package authentication wires the pieces of a small session-authenticated
// web application: a user store, a session principal codec, and a set of
// authentication strategies (local password, Google, Facebook, Twitter).
//
// # Architecture
//
// User: a single account record. A user may hold a local credential and any
// subset of provider links (Google, Facebook, Twitter) at the same time,
// although logins from different providers always create distinct records.
//
// UserStore: persistence for user records. Two implementations ship with
// this module: a MongoDB store (stores package) and a GORM-backed SQL store
// (stores/gorm package). FindOrCreateByProvider is the find-or-create entry
// point every federated login funnels through.
//
// SessionAuth: the session principal codec. On login only the user ID is
// written into the session; each request re-fetches the full record. A stale
// principal (the record was deleted out of band) degrades to anonymous.
//
// # Basic Usage
//
// Build the store, session manager and strategies, then mount the web
// routes:
//
//	cfg, _ := authentication.LoadConfig()
//	users := stores.NewMongoUserStore(db)
//	sessions := authentication.NewSessionAuth(cfg.SessionSecret, cfg.SessionTimeoutInSeconds)
//	local := &authentication.LocalAuth{Users: users, Sessions: sessions}
//	handler := web.NewRouter(web.RouterDeps{...})
//	http.ListenAndServe(":"+cfg.Port, sessions.Manager.LoadAndSave(handler))
//
// # Security
//
// Passwords are hashed with bcrypt at the default cost and never stored in
// clear text. OAuth2 flows carry a cryptographically random state cookie.
// Authentication failures never reveal whether a username exists.
package authentication
