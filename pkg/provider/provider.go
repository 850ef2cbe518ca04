// Package provider defines the contract that line-aware DNS providers implement.
//
// A provider exposes the five management operations the reconciler depends on:
// list zones, list record sets, create, update and delete. Reads are expected to
// be idempotent; writes are independent calls with no transaction semantics.
package provider

import "context"

// RecordType represents the type of DNS record.
type RecordType string

const (
	RecordTypeA     RecordType = "A"
	RecordTypeCNAME RecordType = "CNAME"
)

// Zone is a managed DNS zone as seen by the provider.
type Zone struct {
	ID   string
	Name string // fully qualified, with trailing dot
}

// RecordSet is a provider record set handle.
//
// Line is nil when the provider reported no line attribution, which means
// the record is unscoped (the provider's default line).
type RecordSet struct {
	ID      string
	ZoneID  string
	Name    string
	Type    RecordType
	Line    *string
	Records []string
	TTL     int
}

// LineID returns the line attribution and whether one is present.
func (r RecordSet) LineID() (string, bool) {
	if r.Line == nil {
		return "", false
	}
	return *r.Line, true
}

// OnLine reports whether the record carries exactly the given line attribution.
func (r RecordSet) OnLine(line string) bool {
	id, ok := r.LineID()
	return ok && id == line
}

// Value returns the first record value, or "" if the set is empty.
func (r RecordSet) Value() string {
	if len(r.Records) == 0 {
		return ""
	}
	return r.Records[0]
}

// LinePtr returns a pointer to line, for building RecordSet literals.
func LinePtr(line string) *string {
	return &line
}

// ListFilter narrows a record set listing.
// Empty fields are not sent to the provider.
type ListFilter struct {
	Name string
	Type RecordType
	Line string
}

// CreateRequest describes a new record set.
// Line is optional; when set the provider's line-aware creation path is used.
type CreateRequest struct {
	Name    string
	Type    RecordType
	Records []string
	TTL     int
	Line    string
}

// UpdateRequest replaces the values and TTL of an existing record set.
// Type and line attribution are never changed by an update.
type UpdateRequest struct {
	Name    string
	Type    RecordType
	Records []string
	TTL     int
}

// Provider defines the interface for line-aware DNS providers.
type Provider interface {
	// Name returns the provider instance name (e.g., "huawei-public").
	Name() string

	// Type returns the provider type (e.g., "huaweicloud", "webhook").
	Type() string

	// Ping checks connectivity and credentials.
	Ping(ctx context.Context) error

	// ListZones returns every zone visible to the credentials.
	ListZones(ctx context.Context) ([]Zone, error)

	// ListRecordSets returns record sets in a zone matching the filter.
	// Providers may return records outside the filter; callers re-validate.
	ListRecordSets(ctx context.Context, zoneID string, filter ListFilter) ([]RecordSet, error)

	// CreateRecordSet creates a record set and returns the provider's view of it.
	CreateRecordSet(ctx context.Context, zoneID string, req CreateRequest) (RecordSet, error)

	// UpdateRecordSet replaces the values of an existing record set.
	UpdateRecordSet(ctx context.Context, zoneID, recordID string, req UpdateRequest) error

	// DeleteRecordSet removes a record set by id.
	DeleteRecordSet(ctx context.Context, zoneID, recordID string) error
}
