// Package models defines the core data structures for principals, documents,
// and repository settings.
package models

import "time"

// Role identifies the access level of a principal.
type Role string

const (
	// RoleAdmin grants access to administrative operations and to every
	// principal's documents.
	RoleAdmin Role = "admin"
	// RoleEmployee grants access to the principal's own documents only.
	RoleEmployee Role = "employee"
)

// Status identifies whether a principal may authenticate.
type Status string

const (
	// StatusActive marks a principal that may authenticate and act.
	StatusActive Status = "active"
	// StatusInactive marks a principal that is kept on record but denied access.
	StatusInactive Status = "inactive"
)

// Principal represents an authenticated actor with a role and identity.
type Principal struct {
	// ID is the unique identifier for the principal.
	ID string `json:"id"`
	// Role is the stored access level; request parameters never override it.
	Role Role `json:"role"`
	// Status controls whether the principal may authenticate.
	Status Status `json:"status"`
	// Location is an optional free-form location string.
	Location string `json:"location,omitempty"`
}

// IsActive reports whether the principal is allowed to act.
func (p *Principal) IsActive() bool {
	return p.Status == StatusActive
}

// Document represents a stored file record owned by a principal.
type Document struct {
	// ID is the unique identifier for the document.
	ID string `json:"id"`
	// OwnerID references the owning principal.
	OwnerID string `json:"owner_id"`
	// Filename is the user-visible file name.
	Filename string `json:"filename"`
	// Category groups documents within an owner (e.g. "Finance").
	Category string `json:"category"`
	// StorageRef is an opaque locator for the backing blob. Empty when the
	// record predates blob-backed storage.
	StorageRef string `json:"storage_ref,omitempty"`
	// UploadedAt is the upload timestamp; recency decides duplicate resolution.
	UploadedAt time.Time `json:"uploaded_at"`
	// IsDeleted marks the record hidden from normal queries without
	// physically removing it.
	IsDeleted bool `json:"is_deleted"`
	// IsEncrypted marks the backing blob as encrypted at rest.
	IsEncrypted bool `json:"is_encrypted"`
}

// SettingEntry is a single key/value configuration row.
type SettingEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RekeyResult reports the outcome of an identity rekey transaction.
type RekeyResult struct {
	// Migrated is false when the rekey turned out to be a no-op, either
	// because it already ran or because neither id exists.
	Migrated bool `json:"migrated"`
	// DocumentsUpdated counts dependent document rows repointed to the new id.
	DocumentsUpdated int64 `json:"documents_updated"`
}

// ResolveResult reports the outcome of a duplicate-resolution run.
type ResolveResult struct {
	// GroupsResolved counts duplicate groups collapsed to a single member.
	GroupsResolved int `json:"groups_resolved"`
	// RecordsDeleted counts document rows removed.
	RecordsDeleted int `json:"records_deleted"`
	// FileDeletionWarnings collects blob-deletion failures. They never fail
	// the run; row deletion is authoritative.
	FileDeletionWarnings []string `json:"file_deletion_warnings"`
}
