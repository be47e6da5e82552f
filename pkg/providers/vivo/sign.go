package vivo

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const nonceChars = "abcdefghijklmnopqrstuvwxyz0123456789"

// genNonce 生成随机字符串
func genNonce(length int) string {
	buf := make([]byte, length)
	_, _ = rand.Read(buf)
	for i, b := range buf {
		buf[i] = nonceChars[int(b)%len(nonceChars)]
	}
	return string(buf)
}

// genCanonicalQueryString 生成规范的查询字符串。
// 参数按键名排序后逐个URL编码拼接。
func genCanonicalQueryString(params map[string]string) string {
	if len(params) == 0 {
		return ""
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, url.QueryEscape(k)+"="+url.QueryEscape(params[k]))
	}
	return strings.Join(parts, "&")
}

// genSignature 对签名字符串做HMAC-SHA256后Base64编码
func genSignature(appKey, signingString string) string {
	mac := hmac.New(sha256.New, []byte(appKey))
	mac.Write([]byte(signingString))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// genSignHeaders 生成网关要求的签名头部。
// 签名字符串的组成顺序和分隔符由网关规定，不能调整。
func genSignHeaders(appID, appKey, method, uri string, query map[string]string) map[string]string {
	method = strings.ToUpper(method)
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	nonce := genNonce(8)
	canonicalQueryString := genCanonicalQueryString(query)

	signedHeadersString := strings.Join([]string{
		"x-ai-gateway-app-id:" + appID,
		"x-ai-gateway-timestamp:" + timestamp,
		"x-ai-gateway-nonce:" + nonce,
	}, "\n")

	signingString := strings.Join([]string{
		method,
		uri,
		canonicalQueryString,
		appID,
		timestamp,
		signedHeadersString,
	}, "\n")

	return map[string]string{
		"X-AI-GATEWAY-APP-ID":         appID,
		"X-AI-GATEWAY-TIMESTAMP":      timestamp,
		"X-AI-GATEWAY-NONCE":          nonce,
		"X-AI-GATEWAY-SIGNED-HEADERS": "x-ai-gateway-app-id;x-ai-gateway-timestamp;x-ai-gateway-nonce",
		"X-AI-GATEWAY-SIGNATURE":      genSignature(appKey, signingString),
	}
}
