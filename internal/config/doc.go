// Package config loads tioga settings.
//
// Sources, lowest precedence first:
//
//  1. built-in defaults (Default)
//  2. the HCL file, tioga.hcl unless --config names another
//  3. a .env file, read with godotenv
//  4. TIOGA_* variables from the process environment
//
// Command-line flags are applied on top by the CLI.
//
// The file has four optional blocks:
//
//	engine {
//	  max_states      = 1000000
//	  timeout         = "30s"
//	  clock_reduction = true
//	  max_findings    = 10
//	}
//	service {
//	  listen  = ":7070"
//	  workers = 4
//	}
//	log {
//	  level  = "info"
//	  format = "text"
//	}
//	store {
//	  path = "tioga.db"
//	}
package config
