package azure

// Identifier types for the various IDs floating around in the directory and
// authorization APIs, to keep signatures self-documenting.
type (
	// ClientId is the application ID (appId) of an application registration.
	ClientId = string
	// ObjectId is the directory object ID of an application registration.
	ObjectId = string
	// ServicePrincipalId is the directory object ID of a service principal.
	ServicePrincipalId = string
	// DisplayName is the human-readable name shared by an application
	// registration and its service principal.
	DisplayName = string
	// Filter is an OData filter expression for Graph API listing requests.
	Filter = string
)

// SecretSentinel is returned in place of the secret value when the
// application already holds a password credential. Secret material is not
// retrievable after creation.
const SecretSentinel = "[EXISTING_SECRET_VALUE_NOT_RETRIEVABLE]"

// Secret is the outcome of ensuring a client secret on an application.
type Secret struct {
	// Value is the freshly issued secret, or SecretSentinel if an existing
	// credential was retained.
	Value string
	// KeyId identifies the credential. Empty when an existing credential of
	// unknown identity was retained.
	KeyId string
	// Created is true if a new credential was issued during this run.
	Created bool
}

// RemovalTarget identifies the service principal(s) whose role assignments
// should be removed. Either ServicePrincipalIds or DisplayName must be set.
// When only DisplayName is given, the reconciler resolves matching principals
// itself and additionally sweeps for orphaned assignments.
type RemovalTarget struct {
	ServicePrincipalIds []ServicePrincipalId
	DisplayName         DisplayName
}

// ByName reports whether removal operates in name-based mode, which is the
// only mode where orphan detection applies.
func (t RemovalTarget) ByName() bool {
	return len(t.ServicePrincipalIds) == 0
}

// RemovalResult summarizes a role assignment removal pass.
type RemovalResult struct {
	// Found counts direct and orphaned assignments matched.
	Found int
	// Removed counts assignments actually deleted.
	Removed int
}
