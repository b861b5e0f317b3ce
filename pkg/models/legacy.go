package models

// LegacyMigrationResult reports what the one-time legacy migration did
type LegacyMigrationResult struct {
	OrdinationsCreated    int  `json:"ordinations_created"`
	ConsecrationsCreated  int  `json:"consecrations_created"`
	CoConsecratorsCreated int  `json:"co_consecrators_created"`
	AlreadyMigrated       bool `json:"already_migrated"`
}
