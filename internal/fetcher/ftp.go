package fetcher

import (
	"context"
	"net"
	"net/url"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
)

const ftpTimeout = 30 * time.Second

// downloadFTP fetches an ftp:// URL to dest with an anonymous login.
func downloadFTP(ctx context.Context, u *url.URL, dest string) error {
	host := u.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}
	if u.Path == "" {
		return eris.New("fetcher: empty path in ftp url")
	}

	conn, err := ftp.Dial(host, ftp.DialWithContext(ctx), ftp.DialWithTimeout(ftpTimeout))
	if err != nil {
		return eris.Wrapf(err, "fetcher: dial ftp %s", host)
	}
	defer func() { _ = conn.Quit() }()

	if err := conn.Login("anonymous", "anonymous"); err != nil {
		return eris.Wrap(err, "fetcher: ftp login")
	}

	resp, err := conn.Retr(u.Path)
	if err != nil {
		return eris.Wrapf(err, "fetcher: ftp retrieve %s", u.Path)
	}
	defer resp.Close() //nolint:errcheck

	return writeFile(dest, resp)
}
