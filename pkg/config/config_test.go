// Copyright the peryan contributors.
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.
//
// SPDX-License-Identifier: Apache-2.0

package config

import "testing"

func TestFromEnvRequiresRuntimePath(t *testing.T) {
	t.Setenv(RuntimePathEnv, "")
	if _, _, err := FromEnv(); err == nil {
		t.Fatalf("FromEnv() with %s unset: expected an error, got none", RuntimePathEnv)
	}
}

func TestFromEnvDefaultsTempDir(t *testing.T) {
	t.Setenv(RuntimePathEnv, "/opt/peryan/runtime")
	t.Setenv(TempDirEnv, "")
	runtimePath, tempDir, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv(): %v", err)
	}
	if runtimePath != "/opt/peryan/runtime" {
		t.Errorf("runtimePath = %q, want /opt/peryan/runtime", runtimePath)
	}
	if tempDir == "" {
		t.Errorf("tempDir = %q, want a non-empty fallback", tempDir)
	}
}

func TestFromEnvReadsTempDir(t *testing.T) {
	t.Setenv(RuntimePathEnv, "/opt/peryan/runtime")
	t.Setenv(TempDirEnv, "/var/tmp/peryan")
	_, tempDir, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv(): %v", err)
	}
	if tempDir != "/var/tmp/peryan" {
		t.Errorf("tempDir = %q, want /var/tmp/peryan", tempDir)
	}
}
