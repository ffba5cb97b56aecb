package loader

import "golang.org/x/text/encoding/simplifiedchinese"

func encodeWith(s string) ([]byte, error) {
	out, err := simplifiedchinese.GBK.NewEncoder().String(s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
