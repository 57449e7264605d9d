package config

const (
	AuthEd25519  = "ed25519"
	AuthClerk    = "clerk"
	AuthFirebase = "firebase"
)

const (
	StoreMemory    = "memory"
	StoreSQLite    = "sqlite"
	StorePostgres  = "postgres"
	StoreS3        = "s3"
	StoreFirestore = "firestore"
)

const (
	EnvConfigPath     = "INKWELL_CONFIG"
	DefaultConfigPath = "config.yaml"
)
