// Package session caches wallet passwords for the lifetime of one process
// so a user is not re-prompted on every payment. Cached values are
// overwritten before removal and the cache registers an idempotent shutdown
// hook that clears it on interrupt and termination signals. Passwords are
// the only secret the cache ever holds; derived keys are never cached.
package session
