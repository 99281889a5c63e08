package inmemdb

import (
	"sort"

	"github.com/eduatipico/portal/core/record"
)

type recordRepository struct {
	students *studentTable
	notas    *notaTable
	laudos   *laudoTable
}

var _ record.Repository = (*recordRepository)(nil)

func NewRecordRepository(db *DB) record.Repository {
	return &recordRepository{students: db.student, notas: db.nota, laudos: db.laudo}
}

func (repo *recordRepository) CreateStudent(s record.Student) (record.Student, error) {
	repo.students.mutex.Lock()
	defer repo.students.mutex.Unlock()

	repo.students.table[s.ID] = &s
	return s, nil
}

func (repo *recordRepository) GetStudentByID(id string) (record.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	if s, ok := repo.students.table[id]; ok {
		return *s, nil
	}
	return record.Student{}, record.ErrNotFound
}

func (repo *recordRepository) FilterStudents(filter record.StudentFilter) ([]record.Student, error) {
	repo.students.mutex.RLock()
	defer repo.students.mutex.RUnlock()

	var students []record.Student
	for _, s := range repo.students.table {
		if (filter.UserID != "" && s.UserID != filter.UserID) ||
			(filter.CuidadorID != "" && s.CuidadorID != filter.CuidadorID) ||
			(filter.ResponsavelID != "" && s.ResponsavelID != filter.ResponsavelID) {
			continue
		}
		students = append(students, *s)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].Name < students[j].Name })
	return students, nil
}

func (repo *recordRepository) CreateNota(n record.Nota) (record.Nota, error) {
	repo.notas.mutex.Lock()
	defer repo.notas.mutex.Unlock()

	repo.notas.table[n.ID] = &n
	return n, nil
}

func (repo *recordRepository) QueryNotas(studentIDs ...string) ([]record.Nota, error) {
	repo.notas.mutex.RLock()
	defer repo.notas.mutex.RUnlock()

	wanted := idSet(studentIDs)
	var notas []record.Nota
	for _, n := range repo.notas.table {
		if wanted == nil || wanted[n.StudentID] {
			notas = append(notas, *n)
		}
	}
	sort.Slice(notas, func(i, j int) bool {
		if notas[i].Date.Equal(notas[j].Date) {
			return notas[i].ID > notas[j].ID
		}
		return notas[i].Date.After(notas[j].Date)
	})
	return notas, nil
}

func (repo *recordRepository) CreateLaudo(l record.Laudo) (record.Laudo, error) {
	repo.laudos.mutex.Lock()
	defer repo.laudos.mutex.Unlock()

	repo.laudos.table[l.ID] = &l
	return l, nil
}

func (repo *recordRepository) QueryLaudos(studentIDs ...string) ([]record.Laudo, error) {
	repo.laudos.mutex.RLock()
	defer repo.laudos.mutex.RUnlock()

	wanted := idSet(studentIDs)
	var laudos []record.Laudo
	for _, l := range repo.laudos.table {
		if wanted == nil || wanted[l.StudentID] {
			laudos = append(laudos, *l)
		}
	}
	sort.Slice(laudos, func(i, j int) bool {
		if laudos[i].Date.Equal(laudos[j].Date) {
			return laudos[i].ID > laudos[j].ID
		}
		return laudos[i].Date.After(laudos[j].Date)
	})
	return laudos, nil
}

// idSet is nil when ids is empty, meaning no restriction.
func idSet(ids []string) map[string]bool {
	if len(ids) == 0 {
		return nil
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
