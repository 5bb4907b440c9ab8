// Copyright (c) 2026 Navimedi. All rights reserved.
// Use of this source code is governed by the Elastic License 2.0
// that can be found in the LICENSE file.

package pkg

import (
	"net/url"
	"strings"

	"github.com/navimedi/reporter/pkg/constant"
)

// secretQueryParams are connection options that carry credentials in the
// clinical warehouse, MongoDB and RabbitMQ URIs.
var secretQueryParams = []string{
	"password",
	"sslpassword",
	"tlscertificatekeyfilepassword",
	"authmechanismproperties",
	"token",
}

// RedactConnectionString masks credentials in a connection URI before it is logged.
// User info is replaced by REDACTED and so is every credential-bearing query option.
// Unparseable input yields "[invalid-uri]".
func RedactConnectionString(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return "[invalid-uri]"
	}

	if u.User != nil {
		u.User = url.UserPassword(constant.RedactPlaceholder, constant.RedactPlaceholder)
	}

	if u.RawQuery != "" {
		u.RawQuery = redactQuery(u.Query())
	}

	return u.String()
}

func redactQuery(q url.Values) string {
	for key := range q {
		if isSecretQueryParam(key) {
			q.Set(key, constant.RedactPlaceholder)
		}
	}

	return q.Encode()
}

func isSecretQueryParam(key string) bool {
	lower := strings.ToLower(key)

	for _, p := range secretQueryParams {
		if lower == p {
			return true
		}
	}

	return false
}
