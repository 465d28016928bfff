package tagged

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"

	"bitbucket.org/sinbad/filestore-client/util"
)

// Dial opens a connection to addr and wraps it in a Transport. If tlsCfg is
// non-nil, the connection is TLS-wrapped with the client's cert/key pair.
// When tlsCfg.Ca is empty, server certificates are accepted unconditionally;
// this is a deliberate mode for self-signed deployments, not an oversight.
// util.Warn is the caller's responsibility to invoke before dialing.
func Dial(addr string, tlsCfg *util.TlsConfig) (*Transport, error) {
	if tlsCfg == nil {
		conn, err := net.Dial("tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, err)
		}
		return New(conn), nil
	}

	cert, err := tls.LoadX509KeyPair(tlsCfg.Cert, tlsCfg.Key)
	if err != nil {
		return nil, fmt.Errorf("load client cert/key: %w", err)
	}

	conf := &tls.Config{
		Certificates: []tls.Certificate{cert},
	}

	if tlsCfg.Ca != "" {
		caBytes, err := os.ReadFile(tlsCfg.Ca)
		if err != nil {
			return nil, fmt.Errorf("read ca %s: %w", tlsCfg.Ca, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caBytes) {
			return nil, fmt.Errorf("ca %s: no certificates parsed", tlsCfg.Ca)
		}
		conf.RootCAs = pool
	} else {
		// Accept-any-cert mode: deliberate. Do not silently add verification
		// here.
		conf.InsecureSkipVerify = true
	}

	conn, err := tls.Dial("tcp", addr, conf)
	if err != nil {
		return nil, fmt.Errorf("tls dial %s: %w", addr, err)
	}
	return New(conn), nil
}
