package discovery

import "testing"

func TestScanIdentity(t *testing.T) {
	tests := []struct {
		name string
		path string
		data string
		want string
	}{
		{"toml", "x/UserSeeder.toml", "namespace = \"app.seeders\"\npriority = 1\n", "app.seeders.UserSeeder"},
		{"yaml", "x/UserSeeder.yaml", "namespace: app.seeders\n", "app.seeders.UserSeeder"},
		{"bare", "x/UserSeeder.hcl", "namespace app\n", "app.UserSeeder"},
		{"single quotes", "x/UserSeeder.yml", "namespace: 'app'\n", "app.UserSeeder"},
		{"explicit name", "x/UserSeeder.toml", "namespace = \"app\"\nname = \"Users\"\n", "app.Users"},
		{"name first", "x/UserSeeder.toml", "name = \"Users\"\nnamespace = \"app\"\n", "app.Users"},
		{"trailing comment", "x/UserSeeder.toml", "namespace = \"app\" # owner: core\n", "app.UserSeeder"},
		{"leading comments", "x/UserSeeder.toml", "# generated\n\nnamespace = \"app\"\n", "app.UserSeeder"},
		{"trims separators", "x/UserSeeder.toml", "namespace = \"app.\"\n", "app.UserSeeder"},
		{"no namespace", "x/UserSeeder.toml", "priority = 1\n", ""},
		{"namespace after table", "x/UserSeeder.toml", "[ordering]\nnamespace = \"app\"\n", ""},
		{"empty", "x/UserSeeder.toml", "", ""},
		{"not a token", "x/UserSeeder.toml", "namespaces = [\"a\", \"b\"]\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScanIdentity(tt.path, []byte(tt.data)); got != tt.want {
				t.Errorf("ScanIdentity() = %q, want %q", got, tt.want)
			}
		})
	}
}
