package hotkey

import xhk "golang.design/x/hotkey"

const modAlt = xhk.ModAlt
