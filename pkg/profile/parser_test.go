package profile

import (
	"os"
	"testing"

	log "github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() log.Logger {
	return log.New(os.Stderr).Level(log.Disabled)
}

func TestParseSimpleProfile(t *testing.T) {
	fields := Parse("%proc.name %proc.cmdline %fd.name", testLogger())

	require.Len(t, fields, 3)
	assert.Equal(t, FieldProcName, fields[0].ID)
	assert.Equal(t, FieldProcCmdline, fields[1].ID)
	assert.Equal(t, FieldFdName, fields[2].ID)
}

func TestParseIndexedSelectors(t *testing.T) {
	fields := Parse("%proc.aname[3] %proc.apid[0] %custom.aexe_lineage_concat[4]", testLogger())

	require.Len(t, fields, 3)
	assert.Equal(t, FieldProcAName, fields[0].ID)
	assert.Equal(t, uint32(3), fields[0].ArgID)
	assert.Equal(t, FieldProcApid, fields[1].ID)
	assert.Equal(t, uint32(0), fields[1].ArgID)
	assert.Equal(t, FieldCustomAExeLineageConcat, fields[2].ID)
	assert.Equal(t, uint32(4), fields[2].ArgID)
}

func TestParseEnvKey(t *testing.T) {
	fields := Parse("%proc.env[PATH] %proc.env", testLogger())

	require.Len(t, fields, 2)
	assert.Equal(t, FieldProcEnv, fields[0].ID)
	assert.Equal(t, "PATH", fields[0].ArgName)
	assert.Equal(t, FieldProcEnv, fields[1].ID)
	assert.Empty(t, fields[1].ArgName)
}

func TestParseLiterals(t *testing.T) {
	fields := Parse("exe= %proc.exe sep %proc.pid", testLogger())

	require.Len(t, fields, 4)
	assert.Equal(t, FieldLiteral, fields[0].ID)
	assert.Equal(t, "exe=", fields[0].Literal)
	assert.Equal(t, FieldLiteral, fields[2].ID)
	assert.Equal(t, "sep", fields[2].Literal)
}

func TestParseDropsMalformedTokens(t *testing.T) {
	for _, tc := range []struct {
		name   string
		fields string
	}{
		{name: "unknown selector", fields: "%proc.doesnotexist"},
		{name: "non-numeric index", fields: "%proc.aname[abc]"},
		{name: "index overflow", fields: "%proc.aname[4294967296]"},
		{name: "empty env key", fields: "%proc.env[]"},
		{name: "argument on plain selector", fields: "%proc.name[2]"},
		{name: "unterminated bracket", fields: "%proc.aname[2"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			fields := Parse(tc.fields+" %proc.name", testLogger())
			require.Len(t, fields, 1)
			assert.Equal(t, FieldProcName, fields[0].ID)
		})
	}
}

func TestParseDottedSelectorsAreDistinct(t *testing.T) {
	fields := Parse("%proc.sid %proc.sid.exe %proc.sid.exepath %proc.vpgid.name", testLogger())

	require.Len(t, fields, 4)
	assert.Equal(t, FieldProcSid, fields[0].ID)
	assert.Equal(t, FieldProcSidExe, fields[1].ID)
	assert.Equal(t, FieldProcSidExepath, fields[2].ID)
	assert.Equal(t, FieldProcVpgidName, fields[3].ID)
}

func TestParseEmptyProfile(t *testing.T) {
	assert.Empty(t, Parse("", testLogger()))
	assert.Empty(t, Parse("   \t ", testLogger()))
}

func TestFDDependent(t *testing.T) {
	assert.True(t, Field{ID: FieldFdName}.FDDependent())
	assert.True(t, Field{ID: FieldCustomFdNamePart2}.FDDependent())
	assert.False(t, Field{ID: FieldProcName}.FDDependent())
	assert.False(t, Field{ID: FieldCustomANameLineageConcat}.FDDependent())
}
