package state

import "path/filepath"

// Paths is the on-disk layout under the db path.
type Paths struct {
	DB    string
	Store string
	State string
	Audit string
	Tmp   string
	Logs  string
	Crash string
}

func PathsFor(dbPath string) Paths {
	statePath := filepath.Join(dbPath, "state")
	return Paths{
		DB:    dbPath,
		Store: filepath.Join(dbPath, "store"),

		State: statePath,
		Audit: filepath.Join(statePath, "audit"),
		Tmp:   filepath.Join(statePath, "tmp"),
		Logs:  filepath.Join(statePath, "logs"),
		Crash: filepath.Join(statePath, "crash"),
	}
}

func (p Paths) all() []string {
	return []string{p.Store, p.Audit, p.Tmp, p.Logs, p.Crash}
}
