// Package discovery finds component declarations without manual registration.
//
// # File Sources
//
// A [Convention] names a subdirectory and a file suffix. Under every root
// two layouts are scanned, nested first:
//
//	root/*/seeders/*Seeder.toml   (one directory level below the root)
//	root/seeders/*Seeder.toml     (directly at the root)
//
// Each matched file contributes one declaration. Its identity comes from a
// lightweight text scan of the header ([ScanIdentity]): the namespace token
// plus an optional name token, which defaults to the file stem:
//
//	namespace = "billing.seeders"     # -> billing.seeders.InvoiceSeeder
//	priority  = 20
//	after     = ["users.seeders.UserSeeder"]
//
//	[ordering]                        # structured form, wins when present
//	priority = 10
//	before   = ["billing.seeders.ReportSeeder"]
//
// TOML, YAML and HCL are decoded by the built-in [Decoder] implementations.
//
// # In-Process Sources
//
// Values implementing [Candidate] are extracted with the same two-tier
// precedence: a non-nil [Attributed.OrderingAttribute] wins over the plain
// [Prioritized], [AfterDeclarer] and [BeforeDeclarer] methods.
//
// # Failure Handling
//
// Missing roots are skipped. Files that cannot be read, carry no namespace,
// or fail to decode are logged at debug level and counted in [Stats.Skipped];
// candidates that panic are treated the same way. Only a dependency cycle
// among the valid declarations fails [Discoverer.Discover].
package discovery
