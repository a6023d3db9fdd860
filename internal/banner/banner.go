/*
 * Copyright (c) 2026 The FinchDB Authors
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

/*
Package banner provides the startup banner display for FinchDB.

The ASCII art logo is embedded at compile time with the //go:embed
directive, so the binary has no external file dependencies. ANSI escape
sequences are used for terminal colors; they are widely supported in
modern terminals.
*/
package banner

import (
	_ "embed" // Required for the //go:embed directive
	"fmt"
	"io"
	"os"

	"finchdb/internal/config"
)

// banner contains the ASCII art logo loaded from banner.txt at compile time.
//
//go:embed banner.txt
var banner string

// ANSI escape codes for terminal text formatting.
const (
	AnsiGreen = "\033[32m"
	AnsiCyan  = "\033[36m"
	AnsiReset = "\033[0m"
	AnsiBold  = "\033[1m"
	AnsiDim   = "\033[2m"
)

// Version information for the FinchDB application.
const (
	Version   = "0.3.1"
	Copyright = "(c) 2026 The FinchDB Authors"
	License   = "Licensed under Apache 2.0"
)

// Print displays the startup banner with version and copyright
// information.
func Print() {
	PrintTo(os.Stdout)
}

// PrintTo writes the startup banner to the specified writer.
func PrintTo(w io.Writer) {
	fmt.Fprintln(w, AnsiCyan+banner+AnsiReset)
	fmt.Fprintln(w, AnsiCyan+AnsiBold+":: FinchDB ::                   (v"+Version+")"+AnsiReset)
	fmt.Fprintln(w, AnsiGreen+Copyright+AnsiReset)
	fmt.Fprintln(w, AnsiGreen+License+AnsiReset)
	fmt.Fprintln(w)
}

// PrintShellWithConfig writes the shell banner with the active
// configuration to the specified writer.
func PrintShellWithConfig(w io.Writer, cfg *config.Config) {
	PrintTo(w)

	fmt.Fprint(w, "  "+AnsiDim+"Config: "+AnsiReset)
	if cfg.ConfigFile != "" {
		fmt.Fprintln(w, cfg.ConfigFile)
	} else {
		fmt.Fprintln(w, AnsiDim+"defaults + environment"+AnsiReset)
	}

	fmt.Fprintf(w, "  %sData:%s   %s\n", AnsiDim, AnsiReset, cfg.DataDir)
	fmt.Fprintf(w, "  %sLog:%s    %s\n", AnsiDim, AnsiReset, cfg.LogLevel)
	if cfg.EncryptionEnabled {
		fmt.Fprintf(w, "  %sPages:%s  %sAES-256-GCM%s\n", AnsiDim, AnsiReset, AnsiGreen, AnsiReset)
	} else {
		fmt.Fprintf(w, "  %sPages:%s  %splaintext%s\n", AnsiDim, AnsiReset, AnsiDim, AnsiReset)
	}
	fmt.Fprintln(w)
}
