package config

import "testing"

func TestUserAgentCarriesContact(t *testing.T) {
	c := &Config{ClientAgent: "pubharvest/1.0", OpenAlexMailto: "harvest@example.org"}
	want := "pubharvest/1.0 (mailto:harvest@example.org)"
	if got := c.UserAgent(); got != want {
		t.Errorf("UserAgent() = %q, want %q", got, want)
	}
}

func TestDSN(t *testing.T) {
	c := &Config{DBHost: "localhost", DBPort: 5432, DBUser: "harvest", DBPassword: "secret", DBName: "pubharvest"}
	want := "host=localhost user=harvest password=secret dbname=pubharvest port=5432 sslmode=disable"
	if got := c.DSN(); got != want {
		t.Errorf("DSN() = %q, want %q", got, want)
	}
}
