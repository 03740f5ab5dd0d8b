package line

import "fmt"

func ExamplePipeline_String() {
	p := &Pipeline{
		Commands: []Command{
			{Args: []string{"grep", "-v", "a b"}},
			{Args: []string{"sort"}},
		},
		Input:  &Redirect{Path: "in.txt", Mode: ModeRead},
		Output: &Redirect{Path: "out.txt", Mode: ModeAppend},
		Error:  &Redirect{Path: "err.txt", Mode: ModeWrite},
	}

	fmt.Println(p)
	fmt.Println(p.Names())

	// Output: grep -v 'a b' < in.txt 2> err.txt | sort >> out.txt
	// [grep sort]
}
