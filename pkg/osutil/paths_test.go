/*
Copyright 2011 Google Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package osutil

import (
	"os"
	"testing"
)

func TestHomeDirNonEmptyWhenHomeSet(t *testing.T) {
	if os.Getenv("HOME") == "" && os.Getenv("HOMEPATH") == "" {
		t.Skip("no HOME/HOMEPATH set in this environment")
	}
	if HomeDir() == "" {
		t.Error("HomeDir() returned empty despite HOME/HOMEPATH being set")
	}
}
