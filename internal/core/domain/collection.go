package domain

import "time"

// CollectionStatus is the advisory lifecycle state of a collection.
// It reflects the last observed state and is not authoritative over
// concurrency; run de-duplication lives in the scheduler.
type CollectionStatus string

// Collection statuses.
const (
	// CollectionConfigured means the collection was created but never run.
	CollectionConfigured CollectionStatus = "configured"

	// CollectionRunning means a run is currently executing.
	CollectionRunning CollectionStatus = "running"

	// CollectionIdle means the last run completed successfully.
	CollectionIdle CollectionStatus = "idle"

	// CollectionError means the last run failed.
	CollectionError CollectionStatus = "error"
)

// Collection represents a configured synchronisation job bound to one
// adapter kind. Documents flow from the adapter through the queue; the
// collection record holds everything needed to schedule and resume it.
type Collection struct {
	// ID is the unique identifier, generated on creation, immutable.
	ID string

	// Name is the human-readable label. Uniqueness is conventional,
	// not enforced.
	Name string

	// Adapter identifies the connector kind (e.g. "gmail", "drive").
	// Opaque to the core; validated only by presence.
	Adapter string

	// Enabled controls whether the scheduler honours this collection.
	Enabled bool

	// CredentialsEncrypted is the opaque ciphertext blob produced by the
	// credential store, or empty if no credentials are stored. No other
	// component may interpret its bytes.
	CredentialsEncrypted string

	// Settings contains adapter-specific configuration, preserved verbatim.
	Settings map[string]any

	// Schedule is a cron-style trigger expression. Empty means manual-only.
	Schedule string

	// Metadata is free-form annotation, not interpreted by the core.
	Metadata map[string]any

	// Status is the advisory lifecycle state.
	Status CollectionStatus

	// CreatedAt is when the collection was created.
	CreatedAt time.Time

	// UpdatedAt is when the collection was last updated.
	UpdatedAt time.Time
}

// HasCredentials returns true if the collection has stored credentials.
func (c *Collection) HasCredentials() bool {
	return c.CredentialsEncrypted != ""
}

// Schedulable returns true if the scheduler should install a trigger.
func (c *Collection) Schedulable() bool {
	return c.Enabled && c.Schedule != ""
}

// CollectionPatch describes a partial update to a collection.
// Nil fields are left unmodified.
type CollectionPatch struct {
	Name        *string
	Enabled     *bool
	Credentials map[string]any
	// ClearCredentials removes stored credentials when true.
	ClearCredentials bool
	Settings         map[string]any
	Schedule         *string
	Metadata         map[string]any
	Status           *CollectionStatus
}

// IsEmpty returns true if the patch modifies nothing.
func (p *CollectionPatch) IsEmpty() bool {
	return p.Name == nil &&
		p.Enabled == nil &&
		p.Credentials == nil &&
		!p.ClearCredentials &&
		p.Settings == nil &&
		p.Schedule == nil &&
		p.Metadata == nil &&
		p.Status == nil
}

// CollectionFilter narrows List results. Nil fields match everything;
// set fields are ANDed together.
type CollectionFilter struct {
	Adapter *string
	Enabled *bool
}
