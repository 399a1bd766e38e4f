package util

import (
	"errors"
	"os/exec"
	"runtime"
)

// 打开浏览器的候选命令，按平台依次尝试
var browserCommands = map[string][][]string{
	"windows": {{"rundll32", "url.dll,FileProtocolHandler"}, {"explorer"}},
	"darwin":  {{"open"}},
	"linux":   {{"xdg-open"}, {"sensible-browser"}, {"firefox"}, {"google-chrome"}},
}

// ErrNoBrowser 当前平台没有可用的浏览器命令
var ErrNoBrowser = errors.New("no browser command available")

// BrowserCommands 返回 goos 平台下的候选命令（未知平台按 linux 处理）
func BrowserCommands(goos string) [][]string {
	if cmds, ok := browserCommands[goos]; ok {
		return cmds
	}
	return browserCommands["linux"]
}

// OpenBrowser 用默认浏览器打开 url，失败时尝试下一个候选命令
func OpenBrowser(url string) error {
	var errs []error
	for _, argv := range BrowserCommands(runtime.GOOS) {
		args := append(append([]string{}, argv[1:]...), url)
		if err := exec.Command(argv[0], args...).Start(); err != nil {
			errs = append(errs, err)
			continue
		}
		return nil
	}
	return errors.Join(append([]error{ErrNoBrowser}, errs...)...)
}
