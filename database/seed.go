package database

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/kunalverma/coursedeck/model"
	"github.com/kunalverma/coursedeck/utils/auth"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db *gorm.DB
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB) *Seeder {
	return &Seeder{db: db}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedCourses(); err != nil {
		return fmt.Errorf("failed to seed courses: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	// Check if admin already exists
	var count int64
	if err := s.db.Model(&model.User{}).Where("role = ?", "admin").Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	// Get admin credentials from environment variables
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		Role:         "admin",
		TokenVersion: 0,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

func mustJSONList(items ...string) datatypes.JSON {
	data, _ := json.Marshal(items)
	return datatypes.JSON(data)
}

// SeedCourses creates the sample course catalog
func (s *Seeder) SeedCourses() error {
	// Check if courses already exist
	var count int64
	if err := s.db.Model(&model.Course{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Courses already exist, skipping...")
		return nil
	}

	courses := []model.Course{
		{
			Title:            "Introduction to Project Management",
			ShortDescription: "Learn the fundamentals of planning, executing, and closing projects.",
			FullDescription:  "This course covers the complete project lifecycle: initiation, planning, execution, monitoring, and closure. You will practice building schedules, managing stakeholders, and handling scope changes on realistic case studies.",
			Category:         "Management",
			Level:            model.LevelBeginner,
			Duration:         "4 weeks",
			Instructor:       "Priya Raghavan",
			Prerequisites:    mustJSONList(),
			Objectives:       mustJSONList("Understand the project lifecycle", "Build a work breakdown structure", "Manage stakeholder expectations"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "Project Lifecycle Overview", Description: "Phases, deliverables, and gates.", Duration: "2 hours"},
				{Position: 2, Title: "Planning and Scheduling", Description: "WBS, estimates, and critical paths.", Duration: "3 hours"},
				{Position: 3, Title: "Stakeholder Management", Description: "Communication plans and escalation.", Duration: "2 hours"},
				{Position: 4, Title: "Closing Projects", Description: "Retrospectives and handover.", Duration: "1 hour"},
			},
		},
		{
			Title:            "Advanced Data Analysis with SQL",
			ShortDescription: "Window functions, query tuning, and analytical modelling in SQL.",
			FullDescription:  "A deep dive into analytical SQL for practitioners who already write day-to-day queries. Covers window functions, common table expressions, query plans, and designing reporting schemas that stay fast as data grows.",
			Category:         "Data",
			Level:            model.LevelAdvanced,
			Duration:         "6 weeks",
			Instructor:       "Marcus Webb",
			Prerequisites:    mustJSONList("Basic SQL", "Familiarity with relational databases"),
			Objectives:       mustJSONList("Write analytical queries with window functions", "Read and act on query plans", "Design reporting-friendly schemas"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "Window Functions", Description: "Ranking, framing, and running totals.", Duration: "3 hours"},
				{Position: 2, Title: "CTEs and Recursion", Description: "Structuring complex queries.", Duration: "2 hours"},
				{Position: 3, Title: "Query Tuning", Description: "Indexes, plans, and statistics.", Duration: "4 hours"},
			},
		},
		{
			Title:            "Effective Business Communication",
			ShortDescription: "Write and present with clarity in a professional setting.",
			FullDescription:  "From emails to executive briefings, this course teaches structured communication: audience analysis, message pyramids, and presentation delivery. Includes peer-reviewed writing exercises.",
			Category:         "Soft Skills",
			Level:            model.LevelBeginner,
			Duration:         "3 weeks",
			Instructor:       "Elena Sokolova",
			Prerequisites:    mustJSONList(),
			Objectives:       mustJSONList("Structure messages for busy readers", "Deliver concise presentations", "Give and receive feedback"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "Audience and Purpose", Description: "Who you are writing for and why.", Duration: "1 hour"},
				{Position: 2, Title: "Structured Writing", Description: "Message pyramids and summaries.", Duration: "2 hours"},
				{Position: 3, Title: "Presenting to Leadership", Description: "Briefing formats that land.", Duration: "2 hours"},
			},
		},
		{
			Title:            "Machine Learning Foundations",
			ShortDescription: "Core concepts of supervised and unsupervised learning.",
			FullDescription:  "An intermediate course on machine learning fundamentals: regression, classification, clustering, evaluation metrics, and the practical pitfalls of leakage and overfitting. Hands-on labs use Python notebooks.",
			Category:         "Data",
			Level:            model.LevelIntermediate,
			Duration:         "8 weeks",
			Instructor:       "Dr. Anand Krishnan",
			Prerequisites:    mustJSONList("Python basics", "Introductory statistics"),
			Objectives:       mustJSONList("Train and evaluate supervised models", "Apply clustering techniques", "Recognise overfitting and leakage"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "Regression", Description: "Linear models and regularisation.", Duration: "4 hours"},
				{Position: 2, Title: "Classification", Description: "Trees, ensembles, and metrics.", Duration: "4 hours"},
				{Position: 3, Title: "Clustering", Description: "K-means and hierarchical methods.", Duration: "3 hours"},
				{Position: 4, Title: "Model Evaluation", Description: "Cross-validation and error analysis.", Duration: "3 hours"},
			},
		},
		{
			Title:            "Leadership for New Managers",
			ShortDescription: "Make the transition from individual contributor to people leader.",
			FullDescription:  "Designed for first-time managers: delegation, one-on-ones, performance conversations, and building team trust. Scenario-based exercises drawn from real management situations.",
			Category:         "Management",
			Level:            model.LevelIntermediate,
			Duration:         "5 weeks",
			Instructor:       "James O'Connor",
			Prerequisites:    mustJSONList("Currently managing or preparing to manage a team"),
			Objectives:       mustJSONList("Run effective one-on-ones", "Delegate without micromanaging", "Handle difficult performance conversations"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "The Manager Mindset", Description: "From doing to enabling.", Duration: "2 hours"},
				{Position: 2, Title: "Delegation", Description: "Matching work to people.", Duration: "2 hours"},
				{Position: 3, Title: "Feedback and Performance", Description: "Honest, useful conversations.", Duration: "3 hours"},
			},
		},
		{
			Title:            "Cybersecurity Awareness Essentials",
			ShortDescription: "Recognise and respond to everyday security threats.",
			FullDescription:  "A practical security course for all staff: phishing, password hygiene, device security, and safe data handling. Short modules with real-world examples and a final assessment.",
			Category:         "Security",
			Level:            model.LevelBeginner,
			Duration:         "2 weeks",
			Instructor:       "Fatima Al-Rashid",
			Prerequisites:    mustJSONList(),
			Objectives:       mustJSONList("Spot phishing attempts", "Apply password and device hygiene", "Handle sensitive data safely"),
			Curriculum: []model.CurriculumItem{
				{Position: 1, Title: "Phishing and Social Engineering", Description: "Common lures and red flags.", Duration: "1 hour"},
				{Position: 2, Title: "Passwords and MFA", Description: "Practical account security.", Duration: "1 hour"},
				{Position: 3, Title: "Data Handling", Description: "Classification and safe sharing.", Duration: "1 hour"},
			},
		},
	}

	for i := range courses {
		if err := s.db.Create(&courses[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("✅ Created %d sample courses\n", len(courses))
	return nil
}
