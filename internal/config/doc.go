// Package config provides configuration management for orbit.
//
// Configuration is loaded from YAML and merged in the following order, with
// later sources overriding earlier ones:
//
//  1. Default configuration (no planets)
//  2. User configuration (~/.orbit/config.yaml, or the --config flag)
//  3. Project configuration (./.orbit/config.yaml), merged by planet name
//
// When the user file does not exist, a commented template is written and
// LoadConfig returns a *Notice instead of a configuration.
//
// # Configuration Structure
//
//	worktree_root: ~/orbits          # optional
//	planets:
//	  - name: myapp
//	    path: ~/code/myapp
//	    description: main web app
//	    worktree_base: ~/orbits/myapp # optional, overrides worktree_root
//	    env:
//	      NODE_ENV: development
//	    sync_untracked: [".env*"]     # default [".*"]; [] disables
//	    panes:
//	      - name: editor
//	        command: nvim
//	      - name: server
//	        command: npm run dev
//	        directory: web
//	        ports: [3000]
//
// A planet is a codebase; every orbit launched from inside its path gets a
// worktree under the planet's worktree directory, a tmux session with one
// pane per entry in panes, and its own copy of every declared port. Worktrees
// default to "<planet parent>/<planet basename>.wt/<orbit name>".
//
// Untracked files in the planet whose basename (or an ancestor directory's
// basename) matches a sync_untracked glob are symlinked into new worktrees,
// so secrets such as .env follow the code without being committed.
package config
