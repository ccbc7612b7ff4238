package testutil

import (
	"os"
	"testing"
	"time"

	"barbersched/pkg/actor"
	"barbersched/pkg/client"
)

const (
	DefaultMongoURI           = "mongodb://localhost:27017"
	DefaultDatabaseName       = "barbersched_test"
	ConnectionTimeout         = 10 * time.Second
	DefaultHealthCheckTimeout = 30 * time.Second
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	ServerURL    string
}

// NewTestEnv skips the calling test unless TEST_SERVER_URL points at a
// running scheduling service.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set, skipping integration test")
	}
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:    serverURL,
	}
}

// Setup cleans the database and waits for the service. Cleanup runs when
// the test ends.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *client.HttpClient) {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)
	t.Cleanup(func() {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	})

	httpClient := client.NewHttpClient(e.ServerURL)
	if err := httpClient.WaitForHealthy(DefaultHealthCheckTimeout); err != nil {
		t.Fatalf("service not healthy: %v", err)
	}
	return mongo, httpClient
}

func Admin() actor.Actor {
	return actor.Actor{ID: "admin-it", Role: actor.RoleAdmin}
}

func Barber(id string) actor.Actor {
	return actor.Actor{ID: id, Role: actor.RoleBarber}
}

func Customer() actor.Actor {
	return actor.Actor{ID: "customer-it", Role: actor.RoleCustomer}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
