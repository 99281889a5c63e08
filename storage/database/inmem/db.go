package inmemdb

import (
	"sync"

	"github.com/eduatipico/portal/core/record"
	"github.com/eduatipico/portal/core/user"
)

type (
	// DB is a process-local store for credential and domain records.
	DB struct {
		user    *userTable
		student *studentTable
		nota    *notaTable
		laudo   *laudoTable
	}

	userTable struct {
		table map[string]*user.User
		mutex sync.RWMutex
	}

	studentTable struct {
		table map[string]*record.Student
		mutex sync.RWMutex
	}

	notaTable struct {
		table map[string]*record.Nota
		mutex sync.RWMutex
	}

	laudoTable struct {
		table map[string]*record.Laudo
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		user:    &userTable{table: make(map[string]*user.User)},
		student: &studentTable{table: make(map[string]*record.Student)},
		nota:    &notaTable{table: make(map[string]*record.Nota)},
		laudo:   &laudoTable{table: make(map[string]*record.Laudo)},
	}
}
