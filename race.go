// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package jana

// RaceEnabled is true when the race detector is active. Consulted by
// tests to skip timing-sensitive concurrent scenarios that trigger
// false positives under -race's extra synchronisation overhead.
const RaceEnabled = true
