// /internal/database/database.go
package database

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SessionRecord é uma sessão do navegador guardada no banco. Data traz
// os valores já codificados pelo securecookie.
type SessionRecord struct {
	ID        string    `gorm:"primaryKey;size:36"`
	Data      string    `gorm:"type:text;not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (SessionRecord) TableName() string { return "bff_sessions" }

// ConnectDB abre a conexão com o Postgres e migra a tabela de sessões.
func ConnectDB(dsn string, log logrus.FieldLogger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database: DATABASE_URL vazio")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("database: conectar: %w", err)
	}
	log.Info("conexão com o banco de dados estabelecida")

	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return nil, fmt.Errorf("database: migrar: %w", err)
	}
	log.Debug("migrações concluídas")
	return db, nil
}
