// Package paths locates DictHub's per-user files.
//
// # Directory Structure
//
//	$XDG_CONFIG_HOME/dicthub/   (or the OS equivalent)
//	  ├── dicthub.yaml          (optional config, .yml and .toml also accepted)
//	  └── dicthub.db            (SQLite store, moved by DICTHUB_HOME)
//
// # Usage
//
//	if path, ok := paths.FindConfig(); ok {
//	    cfg, err = config.LoadFile(path)
//	}
package paths
