package profile

import (
	"strconv"
	"strings"

	log "github.com/rs/zerolog"
)

type selectorSpec struct {
	id       FieldID
	indexArg bool // permits name[k]
	nameArg  bool // permits name[KEY]
}

var selectors = map[string]selectorSpec{
	"%container.id":                  {id: FieldContainerID},
	"%proc.name":                     {id: FieldProcName},
	"%proc.pname":                    {id: FieldProcPName},
	"%proc.aname":                    {id: FieldProcAName, indexArg: true},
	"%proc.args":                     {id: FieldProcArgs},
	"%proc.cmdnargs":                 {id: FieldProcCmdNArgs},
	"%proc.cmdlenargs":               {id: FieldProcCmdLenArgs},
	"%proc.cmdline":                  {id: FieldProcCmdline},
	"%proc.pcmdline":                 {id: FieldProcPCmdline},
	"%proc.acmdline":                 {id: FieldProcACmdline, indexArg: true},
	"%proc.exeline":                  {id: FieldProcExeline},
	"%proc.exe":                      {id: FieldProcExe},
	"%proc.pexe":                     {id: FieldProcPExe},
	"%proc.aexe":                     {id: FieldProcAExe, indexArg: true},
	"%proc.exepath":                  {id: FieldProcExepath},
	"%proc.pexepath":                 {id: FieldProcPExepath},
	"%proc.aexepath":                 {id: FieldProcAExepath, indexArg: true},
	"%proc.cwd":                      {id: FieldProcCwd},
	"%proc.tty":                      {id: FieldProcTty},
	"%proc.pid":                      {id: FieldProcPid},
	"%proc.ppid":                     {id: FieldProcPpid},
	"%proc.apid":                     {id: FieldProcApid, indexArg: true},
	"%proc.vpid":                     {id: FieldProcVpid},
	"%proc.pvpid":                    {id: FieldProcPvpid},
	"%proc.sid":                      {id: FieldProcSid},
	"%proc.sname":                    {id: FieldProcSname},
	"%proc.sid.exe":                  {id: FieldProcSidExe},
	"%proc.sid.exepath":              {id: FieldProcSidExepath},
	"%proc.vpgid":                    {id: FieldProcVpgid},
	"%proc.vpgid.name":               {id: FieldProcVpgidName},
	"%proc.vpgid.exe":                {id: FieldProcVpgidExe},
	"%proc.vpgid.exepath":            {id: FieldProcVpgidExepath},
	"%proc.env":                      {id: FieldProcEnv, nameArg: true},
	"%proc.is_exe_writable":          {id: FieldProcIsExeWritable},
	"%proc.is_exe_upper_layer":       {id: FieldProcIsExeUpperLayer},
	"%proc.is_exe_from_memfd":        {id: FieldProcIsExeFromMemfd},
	"%proc.exe_ino":                  {id: FieldProcExeIno},
	"%proc.exe_ino.ctime":            {id: FieldProcExeInoCtime},
	"%proc.exe_ino.mtime":            {id: FieldProcExeInoMtime},
	"%proc.is_sid_leader":            {id: FieldProcIsSidLeader},
	"%proc.is_vpgid_leader":          {id: FieldProcIsVpgidLeader},
	"%fd.num":                        {id: FieldFdNum},
	"%fd.name":                       {id: FieldFdName},
	"%fd.directory":                  {id: FieldFdDirectory},
	"%fd.filename":                   {id: FieldFdFilename},
	"%fd.ino":                        {id: FieldFdIno},
	"%fd.dev":                        {id: FieldFdDev},
	"%fd.nameraw":                    {id: FieldFdNameRaw},
	"%custom.aname_lineage_concat":   {id: FieldCustomANameLineageConcat, indexArg: true},
	"%custom.aexe_lineage_concat":    {id: FieldCustomAExeLineageConcat, indexArg: true},
	"%custom.aexepath_lineage_concat": {id: FieldCustomAExepathLineageConcat, indexArg: true},
	"%custom.fdname_part1":           {id: FieldCustomFdNamePart1},
	"%custom.fdname_part2":           {id: FieldCustomFdNamePart2},
}

// Parse tokenizes a behavior profile string into field selectors. Tokens
// are whitespace-separated; tokens not starting with '%' are literals.
// Unrecognized or malformed selectors are dropped with a warning and do not
// abort parsing.
func Parse(fields string, logger log.Logger) []Field {
	var out []Field
	for _, tok := range strings.Fields(fields) {
		if !strings.HasPrefix(tok, "%") {
			out = append(out, Field{ID: FieldLiteral, Literal: tok})
			continue
		}
		name, arg, hasArg := splitArg(tok)
		spec, ok := selectors[name]
		if !ok {
			logger.Warn().Str("token", tok).Msg("unknown behavior profile field, dropping")
			continue
		}
		f := Field{ID: spec.id}
		switch {
		case hasArg && spec.indexArg:
			n, err := strconv.ParseUint(arg, 10, 32)
			if err != nil {
				logger.Warn().Str("token", tok).Msg("invalid behavior profile field index, dropping")
				continue
			}
			f.ArgID = uint32(n)
		case hasArg && spec.nameArg:
			if arg == "" {
				logger.Warn().Str("token", tok).Msg("empty behavior profile field argument, dropping")
				continue
			}
			f.ArgName = arg
		case hasArg:
			logger.Warn().Str("token", tok).Msg("behavior profile field takes no argument, dropping")
			continue
		}
		out = append(out, f)
	}
	return out
}

func splitArg(tok string) (name, arg string, ok bool) {
	i := strings.IndexByte(tok, '[')
	if i < 0 || !strings.HasSuffix(tok, "]") {
		return tok, "", false
	}
	return tok[:i], tok[i+1 : len(tok)-1], true
}
