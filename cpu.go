/*
 * simdjson-go, (C) 2026 The OpenJSON Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package simdjson

import "github.com/klauspost/cpuid/v2"

// HostFeatures summarizes the SIMD/crypto features cpuid found on the host.
// It exists so callers (and our own diagnostics/logging) can tell what a
// hardware-vectorized build of this parser *could* have used, even though
// this port's kernels are portable Go rather than hand-written assembly.
type HostFeatures struct {
	Name         string
	HasAVX2      bool
	HasSSE42     bool
	HasCLMUL     bool
	HasNEON      bool
	CacheLine    int
	LogicalCores int
}

// Features reports what cpuid found on the host. cpuid.CPU reads
// /proc/cpuinfo or issues the CPUID instruction once at init time; the
// result never changes for the life of the process.
func Features() HostFeatures {
	c := cpuid.CPU
	return HostFeatures{
		Name:         c.BrandName,
		HasAVX2:      c.Supports(cpuid.AVX2),
		HasSSE42:     c.Supports(cpuid.SSE42),
		HasCLMUL:     c.Supports(cpuid.CLMUL),
		HasNEON:      c.Supports(cpuid.ASIMD),
		CacheLine:    c.CacheLine,
		LogicalCores: c.LogicalCores,
	}
}

// SupportedCPU reports whether the host meets the ISA requirements a
// vectorized implementation of this parser would need. This port has no
// hand-written SIMD kernel to gate on, so it always returns true; the query
// is kept as the seam the out-of-core ISA-dispatch collaborator is expected
// to call before selecting a kernel.
func SupportedCPU() bool {
	return true
}

// Implementation names the structural-indexing kernel actually in use.
// A hardware-vectorized build would return "icelake", "haswell", "westmere"
// or "arm64", selected at runtime by the ISA-dispatch collaborator; this
// all-Go port only ever has one kernel.
func Implementation() string {
	return "portable"
}
