package dom

import "github.com/tliron/commonlog"

var log = commonlog.GetLogger("htmleditor.dom")
