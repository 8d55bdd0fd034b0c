package database

import (
	"fmt"
	"time"

	"agency-portal/internal/logger"
	"agency-portal/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(dsn string) {
	log := logger.Log

	var err error
	const maxAttempts = 10
	for i := 1; i <= maxAttempts; i++ {
		log.Info("connecting to DB", zap.Int("attempt", i), zap.Int("max_attempts", maxAttempts))

		err = Open(postgres.Open(dsn))
		if err == nil {
			log.Info("connected to DB")
			break
		}

		log.Warn("failed to connect to DB", zap.Error(err))
		time.Sleep(2 * time.Second)
	}

	if err != nil {
		log.Fatal("failed to connect to db", zap.Int("attempts", maxAttempts), zap.Error(err))
	}

	CreateDefaultAdmin()
}

// Open подключается через произвольный диалект (postgres в проде, sqlite в тестах)
// и прогоняет миграции.
func Open(dialector gorm.Dialector) error {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	DB = db
	return nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Project{},
		&models.ProjectPhase{},
		&models.ContactSubmission{},
		&models.AuditLog{},
	)
}

// CreateUser хэширует пароль и сохраняет профиль. Пустой пароль — приглашённый клиент.
func CreateUser(email, name, password string, role models.UserRole) (*models.User, error) {
	user := models.User{
		UserID: uuid.NewString(),
		Email:  email,
		Name:   name,
		Role:   role,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if err := DB.Create(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// админ только из кода/конфига
func CreateDefaultAdmin() {
	log := logger.Log

	email := getenv("ADMIN_EMAIL", "admin@agency.local")
	password := getenv("ADMIN_PASSWORD", "Admin123!")

	var count int64
	if err := DB.Model(&models.User{}).
		Where("role = ?", models.RoleAdmin).
		Count(&count).Error; err != nil {
		log.Error("failed to check admin user", zap.Error(err))
		return
	}
	if count > 0 {
		return
	}

	if _, err := CreateUser(email, "Administrator", password, models.RoleAdmin); err != nil {
		log.Error("failed to create default admin", zap.Error(err))
		return
	}

	log.Info("created default admin user", logger.Email(email))
}

// SeedDemoUsers создаёт пару тестовых аккаунтов для демо (manager и client).
func SeedDemoUsers() []string {
	log := logger.Log

	type seedUser struct {
		Email    string
		Name     string
		Password string
		Role     models.UserRole
	}

	users := []seedUser{
		{Email: "manager@agency.local", Name: "Demo Manager", Password: "Manager123!", Role: models.RoleManager},
		{Email: "client@agency.local", Name: "Demo Client", Password: "Client123!", Role: models.RoleClient},
	}

	var created []string
	for _, u := range users {
		var count int64
		if err := DB.Model(&models.User{}).
			Where("email = ?", u.Email).
			Count(&count).Error; err != nil {
			log.Error("failed to check seed user", logger.Email(u.Email), zap.Error(err))
			continue
		}
		if count > 0 {
			// уже есть — пропускаем
			continue
		}

		if _, err := CreateUser(u.Email, u.Name, u.Password, u.Role); err != nil {
			log.Error("failed to create seed user", logger.Email(u.Email), zap.Error(err))
			continue
		}
		created = append(created, u.Email)
	}
	return created
}
