package repository

import (
	"fmt"

	"github.com/okian/absensi/internal/domain/model"
)

type demoClass struct {
	name      string
	threshold string
	students  []string
}

var demoClasses = []demoClass{ //nolint:gochecknoglobals // fixed demo data
	{name: "4A", threshold: "07:30", students: []string{"Andi Pratama", "Budi Santoso", "Citra Lestari", "Dewi Anggraini", "Eka Putri", "Fajar Nugroho"}},
	{name: "4B", threshold: "07:30", students: []string{"Gilang Ramadhan", "Hana Safitri", "Indra Wijaya", "Joko Susilo", "Kartika Sari"}},
	{name: "5A", threshold: "07:15", students: []string{"Lina Marlina", "Made Wirawan", "Nanda Putra", "Oki Setiawan", "Putu Ayu", "Rizky Hidayat"}},
}

// Seed fills m with a small demo school: three classes and their students.
// Student ids start at 1 and NIS numbers at 2024001 in class order.
func Seed(m *Memory) error {
	id := int64(0)
	for _, c := range demoClasses {
		if err := m.AddClass(c.name, c.threshold); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		for _, name := range c.students {
			id++
			s := model.Student{
				ID:        id,
				NIS:       fmt.Sprintf("%d", 2024000+id),
				Name:      name,
				ClassName: c.name,
			}
			if err := m.AddStudent(s); err != nil {
				return fmt.Errorf("seed: %w", err)
			}
		}
	}
	return nil
}

// SeedStudentCount is the number of students Seed registers.
func SeedStudentCount() int {
	n := 0
	for _, c := range demoClasses {
		n += len(c.students)
	}
	return n
}
