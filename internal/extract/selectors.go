package extract

// DefaultContentLimit bounds how many paragraph nodes make up a body.
const DefaultContentLimit = 80

// InteractiveRules targets the markup of the rendered, script-driven site.
func InteractiveRules(contentLimit int) Rules {
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}
	return Rules{
		Title: Selectors(
			"h1[data-test-id='post-title']",
			"h1._eYtD2XCVieq6emjKBH3m",
			"h1",
		),
		Subreddit: Selectors(
			"a[data-testid='subreddit-name']",
			"a[data-click-id='subreddit']",
			"a[href*='/r/']",
		),
		Author: Selectors(
			"a[data-testid='post_author_link']",
			"a[data-click-id='user']",
			"a[href*='/user/']",
		),
		Timestamp: FieldRule{
			Selector("a[data-click-id='timestamp']"),
			Selector("time"),
			Attr("time", "datetime"),
		},
		Upvotes: Selectors(
			"div._1rZYMD_4xY3gRcSS3p8ODO",
			"[id^='vote-arrows-'] ~ div",
		),
		Comments: Selectors(
			"span.FHCV02u6Cp2zYL0fhQPsO",
			"a[data-click-id='comments']",
		),
		Content: ParagraphRule{
			Selectors: []string{
				"div[data-test-id='post-content'] p",
				"div._1qeIAgB0cPwnLhDF9XSiJM p",
			},
			Limit: contentLimit,
		},
	}
}

// PassiveRules targets statically served markup: the attributes of the
// shreddit-post element and the old-style listing page, then the shared
// selectors.
func PassiveRules(contentLimit int) Rules {
	if contentLimit <= 0 {
		contentLimit = DefaultContentLimit
	}
	return Rules{
		Title: FieldRule{
			Attr("shreddit-post", "post-title"),
			Selector("div.thing.link p.title a.title"),
			Selector("p.title a.title"),
			Selector("h1[data-test-id='post-title']"),
			Selector("h1"),
			Meta("og:title"),
		},
		Subreddit: FieldRule{
			Attr("shreddit-post", "subreddit-prefixed-name"),
			Selector("span.redditname a"),
			Selector("a[data-testid='subreddit-name']"),
			Selector("a[href*='/r/']"),
		},
		Author: FieldRule{
			Attr("shreddit-post", "author"),
			Selector("div.thing.link p.tagline a.author"),
			Selector("p.tagline a.author"),
			Selector("a[data-testid='post_author_link']"),
			Selector("a[href*='/user/']"),
		},
		Timestamp: FieldRule{
			Attr("shreddit-post", "created-timestamp"),
			Attr("div.thing.link p.tagline time", "datetime"),
			Attr("time", "datetime"),
			Selector("time"),
		},
		Upvotes: FieldRule{
			Attr("shreddit-post", "score"),
			Selector("div.thing.link div.score.unvoted"),
			Selector("div.score.unvoted"),
			Selector("div._1rZYMD_4xY3gRcSS3p8ODO"),
		},
		Comments: FieldRule{
			Attr("shreddit-post", "comment-count"),
			Selector("div.thing.link a.comments"),
			Selector("a.comments"),
			Selector("a[data-click-id='comments']"),
		},
		Content: ParagraphRule{
			Selectors: []string{
				"shreddit-post div[slot='text-body'] p",
				"div.thing.link div.usertext-body div.md p",
				"div.expando div.usertext-body div.md p",
				"div[data-test-id='post-content'] p",
			},
			Limit: contentLimit,
		},
	}
}
