package config

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// DB holds the database connections. Either handle may be nil: an
// unreachable or unprovisioned backing store is tolerated and the
// services serve from their fallback stores instead.
type DB struct {
	Postgres *gorm.DB
	Mongo    *mongo.Client
}

// InitDB initializes the database connections. Connection failures are
// logged, not fatal; the caller receives nil handles for the stores
// that could not be reached.
func InitDB(cfg *Config) *DB {
	db := &DB{}

	if cfg.PostgresConnStr == "" {
		log.Println("POSTGRES_CONN_STR not set; notifications will use the in-memory fallback store.")
	} else if pg, err := initPostgres(cfg.PostgresConnStr); err != nil {
		log.Printf("PostgreSQL unavailable, continuing on the fallback store: %v\n", err)
	} else {
		db.Postgres = pg
	}

	if cfg.MongoURI == "" {
		log.Println("MONGO_URI not set; messages will use the in-memory fallback store.")
	} else if mg, err := initMongo(cfg.MongoURI); err != nil {
		log.Printf("MongoDB unavailable, continuing on the fallback store: %v\n", err)
	} else {
		db.Mongo = mg
	}

	return db
}

// initPostgres initializes the PostgreSQL database connection using GORM
func initPostgres(connStr string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Ping the database to verify connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err = sqlDB.Ping(); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to PostgreSQL!")
	return db, nil
}

// initMongo initializes the MongoDB connection
func initMongo(uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping the primary to verify connection
	if err = client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	log.Println("Successfully connected to MongoDB!")
	return client, nil
}

// CloseDB closes the database connections
func (db *DB) CloseDB() {
	if db.Postgres != nil {
		sqlDB, err := db.Postgres.DB()
		if err != nil {
			log.Printf("Error getting SQL DB from GORM: %v\n", err)
		} else {
			if err := sqlDB.Close(); err != nil {
				log.Printf("Error closing PostgreSQL connection: %v\n", err)
			} else {
				log.Println("PostgreSQL connection closed.")
			}
		}
	}

	if db.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := db.Mongo.Disconnect(ctx); err != nil {
			log.Printf("Error closing MongoDB connection: %v\n", err)
		} else {
			log.Println("MongoDB connection closed.")
		}
	}
}
