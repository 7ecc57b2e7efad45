package config

// TenantConfig describes the analytics tenant the gateway fronts: where it
// lives and which app, sheet and hypercube fields the embedded UI works with.
type TenantConfig interface {
	GetTenantURI() string
	GetAppID() string
	GetSheetID() string
	GetObjectID() string
	GetFieldID() string
	GetHypercubeDimension() string
	GetHypercubeMeasure() string
	GetUserPrefix() string
}

type Tenant struct{}

var _ TenantConfig = Tenant{}

func (Tenant) GetTenantURI() string {
	return GetEnv("TENANT_URI", "")
}

func (Tenant) GetAppID() string {
	return GetEnv("APP_ID", "")
}

func (Tenant) GetSheetID() string {
	return GetEnv("SHEET_ID", "")
}

func (Tenant) GetObjectID() string {
	return GetEnv("OBJECT_ID", "")
}

func (Tenant) GetFieldID() string {
	return GetEnv("FIELD_ID", "")
}

func (Tenant) GetHypercubeDimension() string {
	return GetEnv("HYPERCUBE_DIMENSION", "")
}

func (Tenant) GetHypercubeMeasure() string {
	return GetEnv("HYPERCUBE_MEASURE", "")
}

// GetUserPrefix is the namespace prefix applied to raw login identifiers
// before they are looked up in the tenant's user directory. Keeping gateway
// users in their own namespace avoids collisions with directly provisioned
// tenant users.
func (Tenant) GetUserPrefix() string {
	return GetEnv("USER_PREFIX", "embed_")
}
