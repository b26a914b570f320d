package settings

import "fmt"

const CmdName = "asketch"

var (
	LogFile = fmt.Sprintf("/tmp/%s.log", CmdName)
)
