/*
Package crawler drives a resumable crawl over a symbol file.

A run moves through the phases Loading, Filtering, AwaitingConfirmation,
Running and Finalizing. Tickers are processed one at a time in input order.
The checkpoint is flushed every Options.FlushEvery tickers and once more when
the run ends, whether it completed, failed or was interrupted.

Basic usage:

	c := crawler.New(crawler.Options{
		SymbolFile: "nasdaq_symbols.txt",
		FlushEvery: crawler.DefaultFlushEvery,
		Delay:      time.Second,
	}, worker, store, console, console, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	summary, err := c.Run(ctx)

Cancelling ctx stops the loop before the next ticker or during the pause
between tickers. A ticker whose fetch was cut short by the cancellation is
neither counted nor checkpointed.
*/
package crawler
