package schemadoc

import (
	"fmt"
	"os"
)

// Template returns a starter schema document in TOML form.
func Template() string {
	return docTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("schema already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(docTemplate), 0o600)
}

const docTemplate = `# strictwire schema document.
#
# Field types: u8 u16 u32 u64 bool bytes str, a declared type name,
# or any of those with a trailing "?" for an optional field.
# Field roles: normal (default), skip, tlv, capture.

[types.Envelope]
kind = "struct"
tlv = true

[[types.Envelope.fields]]
name = "id"
type = "u64"

[[types.Envelope.fields]]
name = "body"
type = "bytes"

[[types.Envelope.fields]]
name = "checksum"
type = "u32?"
role = "skip"

[[types.Envelope.fields]]
name = "note"
type = "str?"
role = "tlv"
tag = 1

[[types.Envelope.fields]]
name = "unknown"
role = "capture"

[types.Report]
kind = "struct"

[[types.Report.fields]]
name = "status"
type = "Status"

[[types.Report.fields]]
name = "parent"
type = "Report?"

[types.Status]
kind = "union"
by_value = true
repr = "u16"

[[types.Status.variants]]
name = "Ok"
value = 0

[[types.Status.variants]]
name = "Retry"

[[types.Status.variants]]
name = "Fatal"
value = 16
tag = 0xff
`
