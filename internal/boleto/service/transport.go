package service

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net/http"
	"time"

	"github.com/Gustavo653/Snarf-sub000/internal/config"
	"golang.org/x/crypto/pkcs12"
)

// newMTLSClient decodes the base64 PKCS#12 blob and builds an HTTP
// client that presents the contained certificate on every connection.
// Decoding happens once at startup; a bad blob is fatal, not a runtime
// error.
func newMTLSClient(cfg config.GatewayConfig) (*http.Client, error) {
	der, err := base64.StdEncoding.DecodeString(cfg.CertificateBase64)
	if err != nil {
		return nil, fmt.Errorf("decode gateway certificate: %w", err)
	}

	key, cert, err := pkcs12.Decode(der, cfg.CertificatePassphrase)
	if err != nil {
		return nil, fmt.Errorf("parse gateway certificate: %w", err)
	}

	tlsCert := tls.Certificate{
		Certificate: [][]byte{cert.Raw},
		PrivateKey:  key,
		Leaf:        cert,
	}

	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}

	return &http.Client{
		Timeout: 15 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				Certificates: []tls.Certificate{tlsCert},
				RootCAs:      pool,
				MinVersion:   tls.VersionTLS12,
			},
		},
	}, nil
}
