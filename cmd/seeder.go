package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample departments and employees for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}

		db, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: sqlxDB.DB}), &gorm.Config{})
		if err != nil {
			log.Fatalf("failed to open gorm: %v", err)
		}

		if clearData {
			fmt.Println("Clearing existing data...")
			for _, table := range []string{"import_row_errors", "import_jobs", "time_entries", "employees", "departments"} {
				if err := db.Exec("DELETE FROM " + table).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
		}

		departments := []struct {
			Name string
			Desc string
		}{
			{"Corporate", "Mergers, acquisitions and general corporate work"},
			{"Litigation", "Dispute resolution and trial practice"},
			{"Tax", "Tax planning and compliance"},
			{"Real Estate", "Property transactions and leasing"},
			{"Operations", "Internal operations and support"},
		}

		for _, d := range departments {
			var exists int
			row := db.Raw("SELECT 1 FROM departments WHERE name = ?", d.Name).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}
			if err := db.Exec("INSERT INTO departments (name, description, created_at, updated_at) VALUES (?, ?, now(), now())", d.Name, d.Desc).Error; err != nil {
				log.Fatalf("failed to insert department %s: %v", d.Name, err)
			}
			fmt.Printf("Seeded department: %s\n", d.Name)
		}

		employees := []struct {
			Name       string
			Email      string
			Position   string
			Department string
			HireDate   string
		}{
			{"Alicia Mendes", "alicia.mendes@example.com", "Partner", "Corporate", "2015-03-02"},
			{"Ravi Narang", "ravi.narang@example.com", "Senior Associate", "Corporate", "2019-09-16"},
			{"Tom Okafor", "tom.okafor@example.com", "Associate", "Litigation", "2022-01-10"},
			{"Mei Lin", "mei.lin@example.com", "Counsel", "Tax", "2018-06-25"},
			{"Sofia Petrova", "sofia.petrova@example.com", "Paralegal", "Operations", "2021-11-01"},
		}

		for _, e := range employees {
			var exists int
			row := db.Raw("SELECT 1 FROM employees WHERE lower(email) = lower(?)", e.Email).Row()
			if err := row.Scan(&exists); err == nil {
				continue
			}

			var deptID int64
			if err := db.Raw("SELECT id FROM departments WHERE name = ?", e.Department).Row().Scan(&deptID); err != nil {
				log.Fatalf("department not found for seed employee %s: %v", e.Email, err)
			}

			if err := db.Exec(
				"INSERT INTO employees (name, email, position, department_id, hire_date, is_active, created_at, updated_at) VALUES (?, ?, ?, ?, ?, true, now(), now())",
				e.Name, e.Email, e.Position, deptID, e.HireDate).Error; err != nil {
				log.Fatalf("failed to insert employee %s: %v", e.Email, err)
			}
			fmt.Printf("Seeded employee: %s\n", e.Email)
		}

		fmt.Println("Sample data seeded successfully")
	},
}
