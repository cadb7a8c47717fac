// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import "os/exec"

// lookPath is swapped in tests to make shell defaults deterministic.
var lookPath = exec.LookPath
