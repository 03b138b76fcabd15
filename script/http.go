package script

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reelix-cli/reelix/constant"
	"github.com/reelix-cli/reelix/network"
	lua "github.com/yuin/gopher-lua"
)

// registerHTTP exposes the shared client to scripts as the "reelix_http"
// module, so hooks go through the same transport (and TLS fingerprint) as
// the media server client.
//
//	reelix_http.get(url [, headers])        -> body, status
//	reelix_http.request({method, url, headers, body}) -> {status, body, headers}
func registerHTTP(L *lua.LState) {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(httpGet))
	L.SetField(mod, "request", L.NewFunction(httpRequest))
	L.SetGlobal("reelix_http", mod)
}

func headersOf(table *lua.LTable) map[string]string {
	headers := make(map[string]string)
	if table != nil {
		table.ForEach(func(k, v lua.LValue) {
			headers[k.String()] = v.String()
		})
	}
	return headers
}

func httpGet(L *lua.LState) int {
	url := L.CheckString(1)
	headers := headersOf(L.OptTable(2, nil))

	resp, err := do(L.Context(), http.MethodGet, url, headers, "")
	if err != nil {
		L.RaiseError("reelix_http.get: %s", err)
		return 0
	}

	L.Push(lua.LString(resp.body))
	L.Push(lua.LNumber(resp.status))
	return 2
}

func httpRequest(L *lua.LState) int {
	options := L.CheckTable(1)

	method := strings.ToUpper(options.RawGetString("method").String())
	if method == "" || method == "NIL" {
		method = http.MethodGet
	}

	url := options.RawGetString("url")
	if url.Type() != lua.LTString {
		L.ArgError(1, "url is required")
		return 0
	}

	var headers map[string]string
	if table, ok := options.RawGetString("headers").(*lua.LTable); ok {
		headers = headersOf(table)
	}

	var body string
	if b, ok := options.RawGetString("body").(lua.LString); ok {
		body = string(b)
	}

	resp, err := do(L.Context(), method, url.String(), headers, body)
	if err != nil {
		L.RaiseError("reelix_http.request: %s", err)
		return 0
	}

	result := L.NewTable()
	L.SetField(result, "status", lua.LNumber(resp.status))
	L.SetField(result, "body", lua.LString(resp.body))

	respHeaders := L.NewTable()
	for k, v := range resp.headers {
		L.SetField(respHeaders, k, lua.LString(strings.Join(v, ", ")))
	}
	L.SetField(result, "headers", respHeaders)

	L.Push(result)
	return 1
}

type response struct {
	status  int
	body    string
	headers http.Header
}

func do(ctx context.Context, method, url string, headers map[string]string, body string) (*response, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", constant.UserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := network.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	contents, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	return &response{status: resp.StatusCode, body: string(contents), headers: resp.Header}, nil
}
