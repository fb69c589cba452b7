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

import "testing"

func TestImplementation(t *testing.T) {
	if !SupportedCPU() {
		t.Fatal("SupportedCPU() = false; the portable kernel runs everywhere")
	}
	if got := Implementation(); got != "portable" {
		t.Errorf("Implementation() = %q, want %q", got, "portable")
	}
	f := Features()
	if f.CacheLine < 0 {
		t.Errorf("Features().CacheLine = %d, want >= 0", f.CacheLine)
	}
	if f.LogicalCores < 0 {
		t.Errorf("Features().LogicalCores = %d, want >= 0", f.LogicalCores)
	}
}
