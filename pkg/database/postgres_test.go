package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/trust-erp-api/pkg/config"
)

func TestDSNQuotesAwkwardValues(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "erp",
		Password: `it's a p\ss`,
		Name:     "trust_erp",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		`host=db.internal port=5433 user=erp password='it\'s a p\\ss' dbname=trust_erp sslmode=disable application_name=trust-erp-api`,
		DSN(cfg, "trust-erp-api"))
}

func TestDSNEmptyValuesAreQuoted(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{Host: "localhost", Port: 5432, User: "erp", Name: "erp", SSLMode: "disable"}, "")
	assert.Contains(t, dsn, "password=''")
	assert.NotContains(t, dsn, "application_name")
}
