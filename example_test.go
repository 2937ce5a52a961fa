package xml2abx_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/rhythmcache/xml2abx"
)

func ExampleConvertString() {
	var out bytes.Buffer
	if err := xml2abx.ConvertString(`<a/>`, &out); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("% x\n", out.Bytes())
	// Output: 41 42 58 00 10 32 ff ff 00 01 61 33 00 00 11
}

func ExampleConverter_Convert() {
	opts := xml2abx.NewOptions().
		WithPreserveWhitespace(false).
		WithWarner(xml2abx.WarnerFunc(func(feature, detail string) {
			fmt.Printf("warning: %s: %s\n", feature, detail)
		}))
	c, err := xml2abx.NewConverter(opts)
	if err != nil {
		fmt.Println(err)
		return
	}
	input := "<manifest xmlns:android=\"http://schemas.android.com/apk/res/android\">\n  <uses-sdk android:minSdkVersion=\"24\"/>\n</manifest>"
	stats, err := c.Convert(strings.NewReader(input), &bytes.Buffer{})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println("attributes:", stats.Events["attribute"])
	// Output:
	// warning: Namespaces and prefixes: Found namespace declaration or prefixed attribute: xmlns:android
	// warning: Namespaces and prefixes: Found namespace declaration or prefixed attribute: android:minSdkVersion
	// attributes: 2
}
