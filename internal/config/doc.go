// Package config manages the brsync configuration file.
//
// Configuration lives in a YAML file in the OS-appropriate user config
// directory (~/.config/brsync/config.yaml on Linux). It holds everything
// a node needs to join the show: its role (master or follower), the mesh
// addressing and key, analyzer and colour-mapping tunables, the sync
// group address, and the effect speed calibration table.
//
// Loading is lazy and cached; a missing file yields the compiled-in
// defaults so a bare `brsync run --role master` works with zero setup.
package config
