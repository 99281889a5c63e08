package record

import (
	"time"

	"github.com/pkg/errors"
)

// Seed fills repo with the demo students and their records. The ids of the demo
// caregiver (2), guardian (3) and student (4) accounts match user.Seed.
func Seed(repo Repository) error {
	now := time.Now().UTC()
	students := []Student{
		{
			ID: "1", Name: "Carlos Oliveira", Email: "carlos@email.com",
			DateOfBirth: parseDate("2008-03-15"), SpecialNeeds: "TDAH",
			CuidadorID: "2", ResponsavelID: "3",
			Avatar: "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=400&h=400&fit=crop&crop=face",
		},
		{
			ID: "2", Name: "Julia Santos", Email: "julia@email.com",
			DateOfBirth: parseDate("2010-07-22"), SpecialNeeds: "Autismo",
			CuidadorID: "2", ResponsavelID: "3",
		},
		{
			ID: "3", Name: "Pedro Silva", Email: "pedro@email.com",
			DateOfBirth: parseDate("2009-11-02"), SpecialNeeds: "Dislexia",
		},
		{
			ID: "4", UserID: "4", Name: "Ana Costa", Email: "ana@eduatipico.com",
			DateOfBirth: parseDate("2011-05-09"),
			CuidadorID:  "2", ResponsavelID: "3",
			Avatar: "https://images.unsplash.com/photo-1438761681033-6461ffad8d80?w=400&h=400&fit=crop&crop=face",
		},
	}
	notas := []Nota{
		{ID: "1", StudentID: "1", Subject: "Matemática", Value: 8.5, MaxValue: 10, Date: parseDate("2024-01-15"), Observation: "Bom desempenho em operações básicas"},
		{ID: "2", StudentID: "1", Subject: "Português", Value: 9.0, MaxValue: 10, Date: parseDate("2024-01-10"), Observation: "Excelente interpretação de texto"},
		{ID: "3", StudentID: "1", Subject: "Ciências", Value: 7.5, MaxValue: 10, Date: parseDate("2024-01-05"), Observation: "Precisa melhorar atenção durante experimentos"},
		{ID: "4", StudentID: "2", Subject: "Português", Value: 9.0, MaxValue: 10, Date: parseDate("2024-01-12")},
		{ID: "5", StudentID: "4", Subject: "Matemática", Value: 5.5, MaxValue: 10, Date: parseDate("2024-01-18")},
	}
	laudos := []Laudo{
		{
			ID: "1", StudentID: "1", Type: "Psicológico", Date: parseDate("2023-12-01"),
			Professional: "Dra. Ana Silva", CrpCrm: "CRP 12/12345",
			Description:     "Paciente apresenta características compatíveis com TDAH, necessitando acompanhamento especializado e adaptações pedagógicas.",
			Recommendations: "Sessões de terapia comportamental semanal, ambiente de estudo organizado, pausas regulares durante atividades.",
		},
		{
			ID: "2", StudentID: "1", Type: "Neurológico", Date: parseDate("2023-11-15"),
			Professional: "Dr. Pedro Costa", CrpCrm: "CRM 54321",
			Description:     "Exame neurológico confirma diagnóstico de TDAH. Função cognitiva preservada, dificuldades de atenção sustentada.",
			Recommendations: "Medicação conforme prescrição, reavaliação em 6 meses.",
		},
		{
			ID: "3", StudentID: "2", Type: "Neurológico", Date: parseDate("2023-10-20"),
			Description: "Avaliação compatível com transtorno do espectro autista, nível 1 de suporte.",
		},
	}

	for _, s := range students {
		s.CreatedAt = now
		if _, err := repo.CreateStudent(s); err != nil {
			return errors.Wrapf(err, "seeding student %s", s.Name)
		}
	}
	for _, n := range notas {
		if _, err := repo.CreateNota(n); err != nil {
			return errors.Wrap(err, "seeding nota")
		}
	}
	for _, l := range laudos {
		if _, err := repo.CreateLaudo(l); err != nil {
			return errors.Wrap(err, "seeding laudo")
		}
	}
	return nil
}
